package ports

import "github.com/aalvaropc/readprep/internal/domain"

// ParamsLoader loads a parameter profile by name or path.
type ParamsLoader interface {
	LoadProfile(nameOrPath string) (domain.Profile, error)
}

type ParamsCatalog interface {
	ListProfiles(root string) ([]domain.ProfileRef, error)
}
