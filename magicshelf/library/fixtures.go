package library

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/icrowley/fake"
)

// Seed fills the library with n generated books for demos and manual
// testing. Titles, authors and tags are random; every book gets a UUID
// like a real ingestion run would assign.
func Seed(ctx context.Context, s *Store, n int) error {
	languages := []string{"eng", "deu", "fra", "spa"}
	for i := 0; i < n; i++ {
		rating := rand.Intn(5) + 1
		in := BookInput{
			Title:   fake.Title(),
			Pubdate: fmt.Sprintf("%04d-%02d-01", 1950+rand.Intn(75), 1+rand.Intn(12)),
			ISBN:    fake.DigitsN(13),
			UUID:    uuid.NewString(),
			Authors: []string{fake.FullName()},
			Tags:    []string{fake.Word(), fake.Word()},
			Rating:  &rating,
		}
		if rand.Intn(2) == 0 {
			in.Authors = append(in.Authors, fake.FullName())
		}
		if rand.Intn(3) > 0 {
			in.Series = []string{fake.Brand()}
			in.Publishers = []string{fake.Company()}
		}
		in.Languages = []string{languages[rand.Intn(len(languages))]}
		if in.ISBN != "" {
			in.Identifiers = []Identifier{{Type: "isbn", Value: in.ISBN}}
		}
		if _, err := s.AddBook(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
