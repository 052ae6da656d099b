// @title        Account Dashboard API
// @version      1.0
// @description  Session and profile synchronization for the account dashboard.
// @BasePath     /
package main

import "github.com/99minutos/account-dashboard/cmd/dashboard/cmd"

func main() {
	cmd.Execute()
}
