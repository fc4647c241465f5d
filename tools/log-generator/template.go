package main

import (
	"log"
	"math/rand"

	"github.com/go-faker/faker/v4"
)

type lineTemplate struct {
	ClientIP string `faker:"ipv4"`
	Username string `faker:"username"`
	Method   string `faker:"oneof:GET,POST,PUT,DELETE"`
	Path     string `faker:"oneof:/,/health,/login,/api/orders,/api/users,/static/css/main.css"`
	Status   int    `faker:"oneof:200,200,200,200,201,204,301,302"`
	Bytes    int    `faker:"boundary_start=128, boundary_end=65536"`
}

func newLineTemplate(rng *rand.Rand) lineTemplate {
	var template lineTemplate
	if err := faker.FakeData(&template); err != nil {
		log.Fatalf("faker failed to populate line template: %v", err)
	}
	template.ClientIP = mustNotBeEmpty(template.ClientIP, "client IP")
	template.Username = mustNotBeEmpty(template.Username, "username")
	return template
}
