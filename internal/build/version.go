package build

var (
	ShortVersion = "dev"
	LongVersion  = "dev"
)
