package seed

import (
	"context"
	"fmt"
	"langquiz_backend/internal/service"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog 题库 YAML 文件结构
type Catalog struct {
	Categories []Category `yaml:"categories" validate:"required,min=1,dive"`
}

type Category struct {
	Name      string     `yaml:"name" validate:"required,max=128"`
	Published bool       `yaml:"published"`
	Questions []Question `yaml:"questions" validate:"dive"`
}

type Question struct {
	Text      string   `yaml:"text" validate:"required,max=512"`
	Published *bool    `yaml:"published"`
	Answers   []Answer `yaml:"answers" validate:"required,min=1,max=4,dive"`
}

type Answer struct {
	Text    string `yaml:"text" validate:"required,max=255"`
	Correct bool   `yaml:"correct"`
}

var validate = validator.New()

type Importer interface {
	ImportCategory(ctx context.Context, in service.CategoryInput) (*service.ImportResult, error)
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidCatalog, err)
	}
	return &c, nil
}

// Input 转换为导入参数，未声明 published 的题目默认发布
func (c Category) Input() service.CategoryInput {
	in := service.CategoryInput{
		Name:      c.Name,
		Published: c.Published,
		Questions: make([]service.QuestionInput, 0, len(c.Questions)),
	}
	for _, q := range c.Questions {
		published := true
		if q.Published != nil {
			published = *q.Published
		}
		qi := service.QuestionInput{Text: q.Text, Published: published}
		for _, a := range q.Answers {
			qi.Answers = append(qi.Answers, service.AnswerInput{Text: a.Text, Correct: a.Correct})
		}
		in.Questions = append(in.Questions, qi)
	}
	return in
}

// Import 依次导入所有分类，遇到第一个错误即停止
func Import(ctx context.Context, importer Importer, catalog *Catalog) (created, skipped int, err error) {
	for _, c := range catalog.Categories {
		res, err := importer.ImportCategory(ctx, c.Input())
		if err != nil {
			return created, skipped, fmt.Errorf("category %q: %w", c.Name, err)
		}
		created += res.Created
		skipped += res.Skipped
	}
	logger.Log.Info("Catalog seeded",
		zap.Int("categories", len(catalog.Categories)),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)
	return created, skipped, nil
}

func ImportFile(ctx context.Context, importer Importer, path string) (created, skipped int, err error) {
	catalog, err := Load(path)
	if err != nil {
		return 0, 0, err
	}
	return Import(ctx, importer, catalog)
}
