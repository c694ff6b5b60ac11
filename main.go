// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/textcmd/cmd/textcmd"

func main() {
	cmd.Execute()
}
