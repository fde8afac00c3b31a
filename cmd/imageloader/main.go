// Package main provides the entry point for the imageloader CLI.
//
// imageloader fetches one web page, finds every <img> element, works out a
// reachable URL for each image and saves the images together with a
// filelist.txt manifest.
//
// Usage:
//
//	imageloader -u <url> [-D <dir>] [-d]
//	imageloader history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
