package main

import "github.com/quatton/qwex-trainer/apps/trainerd/cmd"

func main() {
	cmd.Execute()
}
