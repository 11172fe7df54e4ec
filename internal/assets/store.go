package assets

import "carsales/internal/domain"

// Store is the asset backend used by the UI and the HTTP API.
type Store = domain.AssetStore
