package main

import "github.com/shiimaxx/s3-log-analyzer/internal/cmd"

func main() {
	cmd.Execute()
}
