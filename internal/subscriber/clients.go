package subscriber

import (
	"context"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/algod"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/indexer"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// AlgodClient is the slice of the algod REST surface the engine needs.
type AlgodClient interface {
	Status(ctx context.Context) (*algod.NodeStatus, error)
	StatusAfterBlock(ctx context.Context, round uint64) (*algod.NodeStatus, error)
	BlockRaw(ctx context.Context, round uint64) ([]byte, error)
}

// IndexerClient is the slice of the indexer REST surface the engine needs.
type IndexerClient interface {
	SearchForTransactions(ctx context.Context, params indexer.SearchParams) ([]*models.SubscribedTransaction, error)
}
