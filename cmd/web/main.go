package main

import "crisislink_backend/internal/app"

func main() {
	app.Run()
}
