// Package deploy inspects the runtime environment and produces deployment
// configuration artifacts for the supported targets.
package deploy

import (
	"os"
)

// Target identifies where the server is being deployed
type Target string

const (
	TargetLocal      Target = "local"
	TargetDocker     Target = "docker"
	TargetKubernetes Target = "kubernetes"
	TargetCloudRun   Target = "cloudrun"
	TargetHeroku     Target = "heroku"
)

// Targets lists every supported deployment target
func Targets() []Target {
	return []Target{TargetLocal, TargetDocker, TargetKubernetes, TargetCloudRun, TargetHeroku}
}

// ParseTarget validates a target name from user input
func ParseTarget(s string) (Target, bool) {
	for _, t := range Targets() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Detect infers the current deployment target from environment markers
func Detect() Target {
	_, inDocker := os.Stat("/.dockerenv")
	return detect(os.Getenv, inDocker == nil)
}

// detect is the testable core of Detect. Order matters: Kubernetes pods and
// Cloud Run instances also look like Docker containers.
func detect(getenv func(string) string, dockerEnvFile bool) Target {
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return TargetKubernetes
	}
	if getenv("K_SERVICE") != "" || getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return TargetCloudRun
	}
	if getenv("DYNO") != "" || getenv("HEROKU_APP_NAME") != "" {
		return TargetHeroku
	}
	if dockerEnvFile || getenv("DOCKER_CONTAINER") != "" {
		return TargetDocker
	}
	return TargetLocal
}
