package common

import "time"

// An entry of the official plugin catalog.
type CatalogEntry struct {
	Id           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Repository   string         `json:"repository,omitempty"`
	RepositoryId int64          `json:"repositoryId,omitempty"`
	State        string         `json:"state,omitempty"`
	Stars        int            `json:"stars,omitempty"`
	Downloads    int            `json:"downloads,omitempty"`
	Pinned       bool           `json:"pinned,omitempty"`
	Recommended  bool           `json:"recommended,omitempty"`
	Author       *CatalogAuthor `json:"author,omitempty"`
	Tags         []*CatalogTag  `json:"tags,omitempty"`
	UpdatedAt    time.Time      `json:"repoUpdatedAt"`
}

type CatalogAuthor struct {
	Id          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

type CatalogTag struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
