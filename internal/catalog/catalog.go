package catalog

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type Conf struct {
	repo repository.Repository
}

func NewConf(repo repository.Repository) (*Conf, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	return &Conf{repo: repo}, nil
}

func (c *Conf) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		products, err = tx.ListProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Learning is the content of the learning page.
type Learning struct {
	Articles   []domain.Article `json:"articles"`
	Categories []string         `json:"categories"`
}

// Learning lists articles, narrowed to category when it is not empty, along
// with every category that has at least one article.
func (c *Conf) Learning(ctx context.Context, category string) (Learning, error) {
	var l Learning
	err := c.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if l.Articles, err = tx.ListArticles(ctx, category); err != nil {
			return err
		}
		l.Categories, err = tx.ArticleCategories(ctx)
		return err
	})
	if err != nil {
		return Learning{}, err
	}
	if l.Articles == nil {
		l.Articles = []domain.Article{}
	}
	if l.Categories == nil {
		l.Categories = []string{}
	}
	return l, nil
}
