package utils

const defaultServiceName = "lingo-site"

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}
