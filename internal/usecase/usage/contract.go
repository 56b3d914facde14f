package usage

import embeddinguc "github.com/kailas-cloud/coursedex/internal/usecase/embedding"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Usage() embeddinguc.Usage
}
