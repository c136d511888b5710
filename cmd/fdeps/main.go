package main

import "github.com/tattocau/frida/cmd/fdeps/internal"

func main() {
	internal.Execute()
}
