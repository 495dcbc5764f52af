package main

import "github.com/nextlevelbuilder/faqclaw/cmd"

func main() {
	cmd.Execute()
}
