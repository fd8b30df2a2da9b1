package deploy

// Rules are the validation constraints applied to a profile
type Rules struct {
	MinSecretLength     int  // minimum DB_PASSWORD length
	AllowDebugLog       bool // LOG_LEVEL=debug permitted
	AllowMemoryStore    bool // STORE_DRIVER=memory permitted
	RequireHealthChecks bool // probe endpoints must be configured
}

// Resources describes container resource requests and limits
type Resources struct {
	MemoryLimit   string `yaml:"memory_limit,omitempty"`
	CPULimit      string `yaml:"cpu_limit,omitempty"`
	MemoryRequest string `yaml:"memory_request,omitempty"`
	CPURequest    string `yaml:"cpu_request,omitempty"`
	Concurrency   int    `yaml:"concurrency,omitempty"`
}

// Profile describes the configuration contract of one target+environment pair
type Profile struct {
	Target      Target
	Environment string

	RequiredEnv []string
	OptionalEnv map[string]string // defaults applied when unset
	Rules       Rules
	Resources   Resources
}

// baseRequired is what every containerized production deployment needs
var baseRequired = []string{
	"SERVER_PORT",
	"STORE_DRIVER",
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_PASSWORD",
	"JWT_PRIVATE_KEY_PATH",
	"JWT_PUBLIC_KEY_PATH",
}

// ProfileFor returns the configuration contract for a target and
// environment. Unknown combinations fall back to local development.
func ProfileFor(target Target, environment string) Profile {
	production := environment == "production" || environment == "staging"

	p := Profile{
		Target:      target,
		Environment: environment,
		OptionalEnv: map[string]string{
			"SERVER_PORT": "8080",
			"LOG_LEVEL":   "info",
			"JWT_ISSUER":  "api.latticekit.dev",
		},
		Rules: Rules{
			MinSecretLength:  32,
			AllowDebugLog:    true,
			AllowMemoryStore: true,
		},
	}

	if production {
		p.Rules = Rules{
			MinSecretLength:  64,
			AllowDebugLog:    false,
			AllowMemoryStore: false,
		}
		p.RequiredEnv = append(p.RequiredEnv, baseRequired...)
		p.OptionalEnv["LOG_LEVEL"] = "warn"
	}

	switch target {
	case TargetLocal:
		p.OptionalEnv["STORE_DRIVER"] = "memory"
		p.OptionalEnv["SERVER_ENV"] = "development"

	case TargetDocker:
		p.Resources = Resources{
			MemoryLimit: "512Mi", CPULimit: "500m",
			MemoryRequest: "256Mi", CPURequest: "250m",
		}
		if production {
			p.Resources = Resources{
				MemoryLimit: "1Gi", CPULimit: "1000m",
				MemoryRequest: "512Mi", CPURequest: "500m",
			}
		}

	case TargetKubernetes:
		p.Rules.RequireHealthChecks = true
		p.Resources = Resources{
			MemoryLimit: "1Gi", CPULimit: "1000m",
			MemoryRequest: "512Mi", CPURequest: "500m",
		}

	case TargetCloudRun:
		// Cloud Run injects PORT; the platform handles scaling
		p.RequiredEnv = appendUnique(p.RequiredEnv, "PORT")
		p.Resources = Resources{
			MemoryLimit: "1Gi", CPULimit: "1000m", Concurrency: 100,
		}

	case TargetHeroku:
		p.RequiredEnv = appendUnique(p.RequiredEnv, "PORT")
	}

	return p
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
