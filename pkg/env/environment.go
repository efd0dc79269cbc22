package env

//go:generate go run github.com/dmarkham/enumer -type Environment -trimprefix Environment -transform lower -yaml -output environment.gen.go

// Environment is the deployment stage the application runs in
type Environment int

const (
	EnvironmentLocal Environment = iota
	EnvironmentTesting
	EnvironmentStaging
	EnvironmentProduction
)
