// Package docs provides generated OpenAPI documentation.
//
// Courseforge API
//
//	@title			Courseforge API
//	@version		1.0
//	@description	Generates short, structured courses on quantum computing topics.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/courseforge
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:5000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/courseforge/serve.go -o . --outputTypes go --parseDependency --parseInternal
