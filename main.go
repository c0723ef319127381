// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/mmvest/User-Interface-Forge/cmd/uiforge"

func main() {
	cmd.Execute()
}
