// Package qdrant provides the memorial story index on top of Qdrant.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/config"
)

// Payload keys stored with every point.
const (
	payloadMemorialID = "memorial_id"
	payloadFullName   = "full_name"
	payloadCountry    = "country"
	payloadApproved   = "approved"
)

// pointNamespace derives point IDs for memorial IDs that are not UUIDs.
var pointNamespace = uuid.MustParse("6f1c1c3e-55d5-4c1a-9a57-0c2f4b8f7e21")

// Repository implements ports.StoryIndex and ports.CollectionManager.
type Repository struct {
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	apiKey      string
	conn        *grpc.ClientConn
}

var (
	_ ports.StoryIndex        = (*Repository)(nil)
	_ ports.CollectionManager = (*Repository)(nil)
)

// NewRepository creates a new Qdrant story index.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	r := newRepository(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), cfg.Collection)
	r.apiKey = cfg.APIKey
	r.conn = conn
	return r, nil
}

func newRepository(collections pb.CollectionsClient, points pb.PointsClient, collection string) *Repository {
	if collection == "" {
		collection = config.SanitizeCollectionName("")
	}
	return &Repository{
		collections: collections,
		points:      points,
		collection:  collection,
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Collection returns the collection name.
func (r *Repository) Collection() string {
	return r.collection
}

func (r *Repository) withAuth(ctx context.Context) context.Context {
	if r.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", r.apiKey)
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	ctx = r.withAuth(ctx)
	if _, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: r.collection}); err == nil {
		return nil
	}

	_, err := r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// DeleteCollection removes the collection and all its points.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.collections.Delete(r.withAuth(ctx), &pb.DeleteCollection{CollectionName: r.collection})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Upsert stores or replaces the story embedding of a memorial.
func (r *Repository) Upsert(ctx context.Context, memorial *entities.Memorial, embedding []float32) error {
	_, err := r.points.Upsert(r.withAuth(ctx), &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{memorialPoint(memorial, embedding)},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}
	return nil
}

// Search returns approved memorials whose stories are nearest the embedding.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]ports.StoryHit, error) {
	resp, err := r.points.Search(r.withAuth(ctx), &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         approvedFilter(),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]ports.StoryHit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		id := getStringValue(p.GetPayload(), payloadMemorialID)
		if id == "" {
			continue
		}
		hits = append(hits, ports.StoryHit{MemorialID: id, Score: p.GetScore()})
	}
	return hits, nil
}

// Delete removes a memorial from the index.
func (r *Repository) Delete(ctx context.Context, memorialID string) error {
	_, err := r.points.Delete(r.withAuth(ctx), &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pointID(memorialID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}
	return nil
}

// pointID maps a memorial ID to a stable Qdrant point ID.
func pointID(memorialID string) *pb.PointId {
	id := memorialID
	if _, err := uuid.Parse(memorialID); err != nil {
		id = uuid.NewSHA1(pointNamespace, []byte(memorialID)).String()
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
}

func memorialPoint(m *entities.Memorial, embedding []float32) *pb.PointStruct {
	return &pb.PointStruct{
		Id: pointID(m.ID),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: embedding},
			},
		},
		Payload: map[string]*pb.Value{
			payloadMemorialID: {Kind: &pb.Value_StringValue{StringValue: m.ID}},
			payloadFullName:   {Kind: &pb.Value_StringValue{StringValue: m.FullName}},
			payloadCountry:    {Kind: &pb.Value_StringValue{StringValue: m.Country}},
			payloadApproved:   {Kind: &pb.Value_BoolValue{BoolValue: m.Approved}},
		},
	}
}

func approvedFilter() *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: payloadApproved,
						Match: &pb.Match{
							MatchValue: &pb.Match_Boolean{Boolean: true},
						},
					},
				},
			},
		},
	}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
