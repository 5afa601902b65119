package main

import "github.com/Farmanaslam/Infofix-New-App/cmd/cli"

func main() {
	cli.Execute()
}
