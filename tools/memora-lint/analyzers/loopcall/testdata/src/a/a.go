package a

import "context"

type Memorial struct{ ID string }

type Store interface {
	FindMemorialByID(ctx context.Context, id string) (*Memorial, error)
	FindMemorialsByIDs(ctx context.Context, ids []string) ([]*Memorial, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func bad(ctx context.Context, ids []string, s Store, e Embedder) {
	for _, id := range ids {
		s.FindMemorialByID(ctx, id) // want "FindMemorialByID called inside loop: use FindMemorialsByIDs"
	}
	for i := 0; i < len(ids); i++ {
		e.Embed(ctx, ids[i]) // want "Embed called inside loop: use EmbedBatch"
	}
}

func good(ctx context.Context, ids []string, s Store, e Embedder) {
	s.FindMemorialsByIDs(ctx, ids)
	for _, id := range ids {
		go e.Embed(ctx, id)
	}
}
