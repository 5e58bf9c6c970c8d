package callback

import (
	"context"
	"slices"
	"testing"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/pkg/errors"
)

func TestChainRun(t *testing.T) {
	type testCase struct {
		Name              string
		Veto              bool
		Succeed           bool
		ExpectedResult    bool
		ExpectedCalls     []string
		ExpectedOperation bool
	}

	testCases := []testCase{
		{
			Name:              "Succeeded",
			Succeed:           true,
			ExpectedResult:    true,
			ExpectedCalls:     []string{"before", "operation", "after"},
			ExpectedOperation: true,
		},
		{
			Name:           "Vetoed",
			Veto:           true,
			Succeed:        true,
			ExpectedResult: false,
			ExpectedCalls:  []string{"before"},
		},
		{
			Name:              "OperationFailed",
			Succeed:           false,
			ExpectedResult:    false,
			ExpectedCalls:     []string{"before", "operation"},
			ExpectedOperation: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()
			calls := make([]string, 0)

			chain := NewChain[*model.Tag]().
				Before(func(ctx context.Context, tag *model.Tag) (bool, error) {
					calls = append(calls, "before")
					return !tc.Veto, nil
				}).
				After(func(ctx context.Context, tag *model.Tag) error {
					calls = append(calls, "after")
					return nil
				})

			result, err := chain.Run(ctx, model.NewTag("chained"), func(ctx context.Context) (bool, error) {
				calls = append(calls, "operation")
				return tc.Succeed, nil
			})
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.ExpectedResult, result; e != g {
				t.Errorf("chain.Run(): expected %v, got %v", e, g)
			}

			if e, g := tc.ExpectedCalls, calls; !slices.Equal(e, g) {
				t.Errorf("calls: expected %v, got %v", e, g)
			}

			if e, g := tc.ExpectedOperation, slices.Contains(calls, "operation"); e != g {
				t.Errorf("operation called: expected %v, got %v", e, g)
			}
		})
	}
}

func TestChainAfterError(t *testing.T) {
	ctx := context.Background()
	afterErr := errors.New("after failure")

	chain := NewChain[*model.Tag]().After(func(ctx context.Context, tag *model.Tag) error {
		return afterErr
	})

	result, err := chain.Run(ctx, model.NewTag("failing"), func(ctx context.Context) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, afterErr) {
		t.Errorf("chain.Run(): expected error '%v', got '%+v'", afterErr, err)
	}

	if result {
		t.Errorf("chain.Run(): expected false, got true")
	}
}

func TestNilChain(t *testing.T) {
	var chain *Chain[*model.Tag]

	result, err := chain.Run(context.Background(), model.NewTag("nil"), func(ctx context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !result {
		t.Errorf("chain.Run(): expected true, got false")
	}
}
