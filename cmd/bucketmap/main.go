package main

import "github.com/gostonefire/bucketmap/cmd"

func main() {
	cmd.Execute()
}
