package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// DefaultTreeDepth is the traversal depth used when callers do not pick one.
const DefaultTreeDepth = 3

// TreeService builds bounded-depth family trees from approved edges.
type TreeService struct {
	store    ports.GraphStore
	resolver *ResolverService
	logger   *slog.Logger
}

// NewTreeService creates a new TreeService.
func NewTreeService(store ports.GraphStore, resolver *ResolverService, logger *slog.Logger) *TreeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeService{store: store, resolver: resolver, logger: logger}
}

// Build returns the tree rooted at rootID. The root is depth 0 and only
// nodes shallower than maxDepth get children, so maxDepth 0 yields the root
// alone. Every memorial appears at most once: a node's direct relatives are
// claimed before any of them is expanded, and claimed memorials are never
// revisited, which also makes cycles terminate.
func (s *TreeService) Build(ctx context.Context, rootID string, maxDepth int) (*entities.TreeNode, error) {
	if maxDepth < 0 {
		maxDepth = 0
	}

	root, err := s.store.FindMemorialByID(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("finding root memorial: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, rootID)
	}

	node := entities.NewTreeNode(root, "")
	visited := map[string]bool{root.ID: true}
	if err := s.expand(ctx, node, 0, maxDepth, visited); err != nil {
		return nil, err
	}

	treeBuilds.Inc()
	s.logger.Debug("built family tree",
		"root_id", rootID,
		"max_depth", maxDepth,
		"nodes", len(visited),
	)
	return node, nil
}

func (s *TreeService) expand(
	ctx context.Context,
	node *entities.TreeNode,
	depth, maxDepth int,
	visited map[string]bool,
) error {
	if depth >= maxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	neighbors, err := s.resolver.Resolve(ctx, node.ID, entities.StatusApproved)
	if err != nil {
		return fmt.Errorf("resolving neighbors of %s: %w", node.ID, err)
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Memorial.ID != neighbors[j].Memorial.ID {
			return neighbors[i].Memorial.ID < neighbors[j].Memorial.ID
		}
		return neighbors[i].Relationship.ID < neighbors[j].Relationship.ID
	})

	for i := range neighbors {
		n := &neighbors[i]
		if visited[n.Memorial.ID] {
			continue
		}
		visited[n.Memorial.ID] = true
		node.Children = append(node.Children, entities.NewTreeNode(n.Memorial, n.Label.Label()))
	}

	for _, child := range node.Children {
		if err := s.expand(ctx, child, depth+1, maxDepth, visited); err != nil {
			return err
		}
	}
	return nil
}
