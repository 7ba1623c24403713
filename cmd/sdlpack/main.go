package main

import "github.com/goplus/sdlpack/cmd/sdlpack/internal"

func main() {
	internal.Execute()
}
