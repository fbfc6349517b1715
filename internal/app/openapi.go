package app

import _ "embed"

// OpenAPISpec is the REST API description served at /docs/openapi.yaml
//
//go:embed openapi.yaml
var OpenAPISpec []byte
