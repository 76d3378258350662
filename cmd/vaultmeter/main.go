// Package main is the entry point for vaultmeter.
//
//	@title						vaultmeter
//	@version					1.0
//	@description				Usage metering for accounts with recurring budgets and a calendar view of usage history.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication (format: "Bearer {token}")
package main

func main() {
	Execute()
}
