//go:build integration

// Package containers provides testcontainers-go helpers for integration
// testing against a real Keycloak server.
//
// All helpers in this package are gated behind the "integration" build
// tag so they do not pull Docker-related dependencies into unit test
// builds. Use them exclusively from test files that carry the same tag:
//
//	//go:build integration
//
// # Keycloak
//
// [StartKeycloak] starts a Keycloak container in development mode and
// returns a [KeycloakResult] containing the container handle, the base
// URL, and the bootstrap admin credentials:
//
//	result, err := containers.StartKeycloak(ctx)
//	if err != nil { ... }
//	defer result.Container.Terminate(ctx)
//
//	cfg := keycloak.Config{
//	    HTTP:   keycloak.HTTPConfig{AuthServerURL: result.BaseURL},
//	    Client: keycloak.ClientConfig{Realm: "master", ID: "admin-cli"},
//	}
package containers

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultKeycloakImage is the container image used for Keycloak
// integration tests.
const DefaultKeycloakImage = "quay.io/keycloak/keycloak:26.0"

// DefaultKeycloakAdminUser is the bootstrap admin username for the
// Keycloak container. This is a deliberately simple credential suitable
// only for ephemeral test containers.
const DefaultKeycloakAdminUser = "admin"

// DefaultKeycloakAdminPassword is the bootstrap admin password for the
// Keycloak container. This is a deliberately simple credential suitable
// only for ephemeral test containers.
const DefaultKeycloakAdminPassword = "admin"

// KeycloakResult holds a started Keycloak container and the connection
// details needed to reach it. The caller is responsible for terminating
// the container when it is no longer needed:
//
//	defer result.Container.Terminate(ctx)
type KeycloakResult struct {
	// Container is the started Keycloak testcontainer. Use it to
	// retrieve mapped ports, inspect logs, or terminate the container.
	Container testcontainers.Container

	// BaseURL is the HTTP base URL of the Keycloak server
	// (e.g., "http://localhost:55690"). Pass this to
	// [keycloak.HTTPConfig.AuthServerURL].
	BaseURL string

	// AdminUser is the bootstrap admin username.
	AdminUser string

	// AdminPassword is the bootstrap admin password.
	AdminPassword string
}

// StartKeycloak starts a Keycloak container in development mode using
// testcontainers-go and returns a [KeycloakResult] containing the
// container handle, base URL, and bootstrap admin credentials.
//
// The container runs [DefaultKeycloakImage] with `start-dev` so no TLS
// or hostname configuration is required. It waits for the HTTP port to
// accept requests before returning.
//
// The caller must terminate the container when done:
//
//	result, err := containers.StartKeycloak(ctx)
//	if err != nil {
//	    return err
//	}
//	defer result.Container.Terminate(ctx)
//
// StartKeycloak returns an error if the container fails to start or if
// the mapped endpoint cannot be retrieved. In the latter case, the
// container is terminated before returning.
func StartKeycloak(ctx context.Context) (*KeycloakResult, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultKeycloakImage,
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"start-dev"},
		Env: map[string]string{
			"KC_BOOTSTRAP_ADMIN_USERNAME": DefaultKeycloakAdminUser,
			"KC_BOOTSTRAP_ADMIN_PASSWORD": DefaultKeycloakAdminPassword,
		},
		WaitingFor: wait.ForHTTP("/realms/master").
			WithPort("8080/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("containers: failed to start keycloak container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "8080/tcp", "http")
	if err != nil {
		// Clean up the started container before returning the error.
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: failed to get keycloak endpoint: %w", err)
	}

	return &KeycloakResult{
		Container:     container,
		BaseURL:       endpoint,
		AdminUser:     DefaultKeycloakAdminUser,
		AdminPassword: DefaultKeycloakAdminPassword,
	}, nil
}
