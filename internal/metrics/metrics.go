package metrics

const Namespace = "paranoid"
