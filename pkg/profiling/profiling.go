package profiling

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/mentorconnect/mentorconnect-api/config"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultAppName        = "mentorconnect-api"
	defaultUploadInterval = 15 * time.Second
	mutexProfileFraction  = 5
	blockProfileRate      = 5
)

// Labels identify this process in the profiling backend
type Labels struct {
	Service     string
	Namespace   string
	Version     string
	Instance    string
	Environment string
}

func (l Labels) tags() map[string]string {
	tags := map[string]string{}
	for k, v := range map[string]string{
		"service_name":    l.Service,
		"namespace":       l.Namespace,
		"service_version": l.Version,
		"instance":        l.Instance,
		"environment":     l.Environment,
	} {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

// InitProfiler starts pyroscope and returns its stop function.
// A disabled profiler returns a no-op stop.
func InitProfiler(cfg config.ProfilingConfig, labels Labels) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	types, err := profileTypes(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}
	enableRuntimeSampling(types)

	interval := time.Duration(cfg.UploadIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultUploadInterval
	}

	appName := strings.TrimSpace(cfg.AppName)
	if appName == "" {
		appName = defaultAppName
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   endpoint,
		UploadRate:      interval,
		Tags:            labels.tags(),
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("app", appName),
		zap.String("endpoint", endpoint),
		zap.Int("profile_types", len(types)),
		zap.Duration("upload_interval", interval))

	return func() {
		if err := profiler.Stop(); err != nil {
			logger.Error("Failed to stop profiler", zap.Error(err))
		}
	}, nil
}

// profileTypes parses a comma separated list; empty means everything
func profileTypes(value string) ([]pyroscope.ProfileType, error) {
	if strings.TrimSpace(value) == "" {
		return allProfileTypes(), nil
	}

	var out []pyroscope.ProfileType
	seen := map[pyroscope.ProfileType]bool{}
	for _, name := range strings.Split(value, ",") {
		mapped, err := profileTypesFor(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		for _, t := range mapped {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func profileTypesFor(name string) ([]pyroscope.ProfileType, error) {
	switch name {
	case "cpu":
		return []pyroscope.ProfileType{pyroscope.ProfileCPU}, nil
	case "alloc_space":
		return []pyroscope.ProfileType{pyroscope.ProfileAllocSpace}, nil
	case "alloc_objects":
		return []pyroscope.ProfileType{pyroscope.ProfileAllocObjects}, nil
	case "inuse":
		return []pyroscope.ProfileType{pyroscope.ProfileInuseSpace, pyroscope.ProfileInuseObjects}, nil
	case "goroutines":
		return []pyroscope.ProfileType{pyroscope.ProfileGoroutines}, nil
	case "mutex":
		return []pyroscope.ProfileType{pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration}, nil
	case "block":
		return []pyroscope.ProfileType{pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration}, nil
	default:
		return nil, fmt.Errorf("unsupported PROFILING_SAMPLE_TYPES value: %q", name)
	}
}

func allProfileTypes() []pyroscope.ProfileType {
	return []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileGoroutines,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount,
		pyroscope.ProfileBlockDuration,
	}
}

// enableRuntimeSampling turns on the runtime sampling that mutex and block
// profiles depend on; without it those profiles stay empty.
func enableRuntimeSampling(types []pyroscope.ProfileType) {
	for _, t := range types {
		switch t {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(mutexProfileFraction)
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(blockProfileRate)
		}
	}
}
