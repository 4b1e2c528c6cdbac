// Command main runs the database seeder for the Infinity backend.
package main

import (
	"flag"
	"log"

	"infinity/internal/bootstrap"
	"infinity/internal/config"
	"infinity/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numTopics := flag.Int("topics", 10, "Number of topics to create")
	cardsPerTopic := flag.Int("cards", 6, "Number of cards per topic")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Seeding: %d users, %d topics, %d cards/topic, clean=%v",
		*numUsers, *numTopics, *cardsPerTopic, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	_, _, err = bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemoData: true,
		SeedOptions: seed.Options{
			NumUsers:      *numUsers,
			NumTopics:     *numTopics,
			CardsPerTopic: *cardsPerTopic,
			ShouldClean:   *shouldClean,
		},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete. All generated users share the password Seed-Password-1!")
}
