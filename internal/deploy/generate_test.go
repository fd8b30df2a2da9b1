package deploy

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func findArtifact(t *testing.T, artifacts []Artifact, name string) Artifact {
	t.Helper()
	for _, a := range artifacts {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("artifact %q not generated; have %v", name, artifactNames(artifacts))
	return Artifact{}
}

func artifactNames(artifacts []Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	return names
}

func TestGenerate_EnvFile(t *testing.T) {
	artifacts, err := Generate(ProfileFor(TargetLocal, "development"), "lattice-api", "")
	require.NoError(t, err)

	envArtifact := findArtifact(t, artifacts, ".env.development")
	content := string(envArtifact.Content)
	assert.Contains(t, content, "STORE_DRIVER=memory")
	assert.Contains(t, content, "SERVER_PORT=8080")
}

func TestGenerate_ComposeOverride(t *testing.T) {
	artifacts, err := Generate(ProfileFor(TargetDocker, "production"), "lattice-api", "")
	require.NoError(t, err)

	override := findArtifact(t, artifacts, "docker-compose.production.yaml")

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(override.Content, &doc))

	services := doc["services"].(map[string]interface{})
	api := services["api"].(map[string]interface{})
	env := api["environment"].([]interface{})
	assert.Contains(t, env, "SERVER_ENV=production")
}

func TestGenerate_KubernetesManifests(t *testing.T) {
	artifacts, err := Generate(ProfileFor(TargetKubernetes, "production"), "lattice-api", "ghcr.io/latticekit/api:1.0.0")
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	deployment := findArtifact(t, artifacts, "deployment.yaml")
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(deployment.Content, &doc))

	assert.Equal(t, "Deployment", doc["kind"])

	spec := doc["spec"].(map[string]interface{})
	template := spec["template"].(map[string]interface{})
	podSpec := template["spec"].(map[string]interface{})
	containers := podSpec["containers"].([]interface{})
	require.Len(t, containers, 1)

	container := containers[0].(map[string]interface{})
	assert.Equal(t, "ghcr.io/latticekit/api:1.0.0", container["image"])

	liveness := container["livenessProbe"].(map[string]interface{})
	assert.Equal(t, "/healthz", liveness["httpGet"].(map[string]interface{})["path"])
	readiness := container["readinessProbe"].(map[string]interface{})
	assert.Equal(t, "/readyz", readiness["httpGet"].(map[string]interface{})["path"])

	service := findArtifact(t, artifacts, "service.yaml")
	require.NoError(t, yaml.Unmarshal(service.Content, &doc))
	assert.Equal(t, "Service", doc["kind"])
}

func TestGenerate_CloudRun(t *testing.T) {
	artifacts, err := Generate(ProfileFor(TargetCloudRun, "production"), "lattice-api", "gcr.io/p/lattice:1")
	require.NoError(t, err)

	svc := findArtifact(t, artifacts, "cloudrun-service.yaml")
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(svc.Content, &doc))

	assert.Equal(t, "serving.knative.dev/v1", doc["apiVersion"])
	spec := doc["spec"].(map[string]interface{})
	template := spec["template"].(map[string]interface{})
	podSpec := template["spec"].(map[string]interface{})
	assert.Equal(t, 100, podSpec["containerConcurrency"])
}

func TestGenerate_Heroku(t *testing.T) {
	artifacts, err := Generate(ProfileFor(TargetHeroku, "production"), "lattice-api", "")
	require.NoError(t, err)

	procfile := findArtifact(t, artifacts, "Procfile")
	assert.True(t, strings.HasPrefix(string(procfile.Content), "web:"))

	appManifest := findArtifact(t, artifacts, "app.json")
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(appManifest.Content, &doc))

	assert.Equal(t, "lattice-api", doc["name"])
	env := doc["env"].(map[string]interface{})
	_, hasPassword := env["DB_PASSWORD"]
	assert.True(t, hasPassword)
	_, hasPort := env["PORT"]
	assert.False(t, hasPort, "Heroku injects PORT itself")
}
