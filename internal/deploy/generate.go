package deploy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact is one generated configuration file
type Artifact struct {
	Name    string
	Content []byte
}

// Generate produces the configuration artifacts for a profile. The
// appName becomes the service/app identifier in the manifests.
func Generate(p Profile, appName, image string) ([]Artifact, error) {
	switch p.Target {
	case TargetLocal:
		return []Artifact{envFile(p)}, nil
	case TargetDocker:
		override, err := composeOverride(p)
		if err != nil {
			return nil, err
		}
		return []Artifact{envFile(p), override}, nil
	case TargetKubernetes:
		return kubernetesManifests(p, appName, image)
	case TargetCloudRun:
		svc, err := cloudRunService(p, appName, image)
		if err != nil {
			return nil, err
		}
		return []Artifact{svc}, nil
	case TargetHeroku:
		return herokuArtifacts(p, appName)
	}
	return nil, fmt.Errorf("unsupported deployment target %q", p.Target)
}

// envFile renders a .env template: required variables as unfilled
// placeholders, optional ones with their defaults.
func envFile(p Profile) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lattice API environment (%s/%s)\n", p.Target, p.Environment)

	if len(p.RequiredEnv) > 0 {
		b.WriteString("\n# Required\n")
		for _, name := range p.RequiredEnv {
			fmt.Fprintf(&b, "%s=\n", name)
		}
	}

	b.WriteString("\n# Optional (defaults shown)\n")
	names := make([]string, 0, len(p.OptionalEnv))
	for name := range p.OptionalEnv {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\n", name, p.OptionalEnv[name])
	}

	return Artifact{Name: ".env." + p.Environment, Content: []byte(b.String())}
}

func composeOverride(p Profile) (Artifact, error) {
	env := []string{"SERVER_ENV=" + p.Environment}
	for _, name := range []string{"LOG_LEVEL", "SERVER_PORT"} {
		if v, ok := p.OptionalEnv[name]; ok {
			env = append(env, name+"="+v)
		}
	}

	doc := map[string]interface{}{
		"services": map[string]interface{}{
			"api": map[string]interface{}{
				"environment": env,
				"deploy": map[string]interface{}{
					"resources": map[string]interface{}{
						"limits": map[string]string{
							"cpus":   p.Resources.CPULimit,
							"memory": p.Resources.MemoryLimit,
						},
						"reservations": map[string]string{
							"cpus":   p.Resources.CPURequest,
							"memory": p.Resources.MemoryRequest,
						},
					},
				},
			},
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: fmt.Sprintf("docker-compose.%s.yaml", p.Environment), Content: out}, nil
}

func kubernetesManifests(p Profile, appName, image string) ([]Artifact, error) {
	labels := map[string]string{"app": appName}

	configMap := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": appName + "-config", "labels": labels},
		"data":       p.OptionalEnv,
	}

	container := map[string]interface{}{
		"name":  appName,
		"image": image,
		"ports": []map[string]interface{}{{"containerPort": 8080, "name": "http"}},
		"envFrom": []map[string]interface{}{
			{"configMapRef": map[string]string{"name": appName + "-config"}},
			{"secretRef": map[string]string{"name": appName + "-secrets"}},
		},
		"livenessProbe": map[string]interface{}{
			"httpGet":             map[string]interface{}{"path": "/healthz", "port": "http"},
			"initialDelaySeconds": 5,
			"periodSeconds":       10,
		},
		"readinessProbe": map[string]interface{}{
			"httpGet":             map[string]interface{}{"path": "/readyz", "port": "http"},
			"initialDelaySeconds": 5,
			"periodSeconds":       5,
		},
		"resources": map[string]interface{}{
			"limits": map[string]string{
				"memory": p.Resources.MemoryLimit,
				"cpu":    p.Resources.CPULimit,
			},
			"requests": map[string]string{
				"memory": p.Resources.MemoryRequest,
				"cpu":    p.Resources.CPURequest,
			},
		},
	}

	deployment := map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]interface{}{"name": appName, "labels": labels},
		"spec": map[string]interface{}{
			"replicas": 2,
			"selector": map[string]interface{}{"matchLabels": labels},
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{"labels": labels},
				"spec": map[string]interface{}{
					"containers": []interface{}{container},
				},
			},
		},
	}

	svc := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata":   map[string]interface{}{"name": appName, "labels": labels},
		"spec": map[string]interface{}{
			"selector": labels,
			"ports": []map[string]interface{}{
				{"port": 80, "targetPort": "http", "protocol": "TCP"},
			},
		},
	}

	var artifacts []Artifact
	for _, doc := range []struct {
		name string
		body map[string]interface{}
	}{
		{"configmap.yaml", configMap},
		{"deployment.yaml", deployment},
		{"service.yaml", svc},
	} {
		out, err := yaml.Marshal(doc.body)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Name: doc.name, Content: out})
	}
	return artifacts, nil
}

func cloudRunService(p Profile, appName, image string) (Artifact, error) {
	env := make([]map[string]string, 0, len(p.OptionalEnv))
	names := make([]string, 0, len(p.OptionalEnv))
	for name := range p.OptionalEnv {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, map[string]string{"name": name, "value": p.OptionalEnv[name]})
	}

	doc := map[string]interface{}{
		"apiVersion": "serving.knative.dev/v1",
		"kind":       "Service",
		"metadata":   map[string]interface{}{"name": appName},
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]string{
						"autoscaling.knative.dev/maxScale": "10",
					},
				},
				"spec": map[string]interface{}{
					"containerConcurrency": p.Resources.Concurrency,
					"containers": []interface{}{
						map[string]interface{}{
							"image": image,
							"env":   env,
							"resources": map[string]interface{}{
								"limits": map[string]string{
									"memory": p.Resources.MemoryLimit,
									"cpu":    p.Resources.CPULimit,
								},
							},
						},
					},
				},
			},
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: "cloudrun-service.yaml", Content: out}, nil
}

func herokuArtifacts(p Profile, appName string) ([]Artifact, error) {
	procfile := Artifact{
		Name:    "Procfile",
		Content: []byte("web: bin/server\n"),
	}

	appManifest := map[string]interface{}{
		"name":        appName,
		"description": "Lattice REST API",
		"stack":       "container",
		"env":         map[string]interface{}{},
		"formation": map[string]interface{}{
			"web": map[string]interface{}{"quantity": 1, "size": "basic"},
		},
		"healthchecks": []map[string]string{
			{"type": "startup", "name": "readiness", "path": "/readyz"},
		},
	}
	envSection := appManifest["env"].(map[string]interface{})
	for _, name := range p.RequiredEnv {
		if name == "PORT" {
			continue // Heroku injects PORT
		}
		envSection[name] = map[string]interface{}{"required": true}
	}

	out, err := json.MarshalIndent(appManifest, "", "  ")
	if err != nil {
		return nil, err
	}
	return []Artifact{procfile, {Name: "app.json", Content: append(out, '\n')}}, nil
}
