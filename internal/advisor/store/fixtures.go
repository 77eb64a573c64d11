package store

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/loan-advisor/internal/model"
	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

//go:embed fixtures.schema.json
var productSchemaJSON string

var productSchema = mustCompileSchema(productSchemaJSON)

// fixtureNamespace 无 id 的夹具记录在此命名空间下按银行和名称派生 UUID。
var fixtureNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:loan-advisor:product"))

// FixtureID derives a stable product ID from bank and name, so reseeding a
// persistent catalog upserts the same rows instead of inserting new ones.
func FixtureID(bank, name string) string {
	key := strings.ToLower(strings.TrimSpace(bank)) + "\x00" + strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(fixtureNamespace, []byte(key)).String()
}

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid product schema: %v", err))
	}
	return schema
}

// fixtureFile 导入文件结构：顶层 products 列表。
type fixtureFile struct {
	Products []map[string]any `json:"products" yaml:"products"`
}

// LoadFixtures reads a YAML or JSON product file, validates every record
// against the product schema and returns the models. Records without an ID
// get a new UUID.
func LoadFixtures(path string) ([]*model.LoanProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data, filepath.Ext(path))
}

// ParseFixtures parses fixture content; ext selects the format (.json, .yaml, .yml).
func ParseFixtures(data []byte, ext string) ([]*model.LoanProduct, error) {
	var file fixtureFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse fixtures: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse fixtures: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", ext)
	}

	var errs []error
	products := make([]*model.LoanProduct, 0, len(file.Products))
	for i, record := range file.Products {
		p, err := decodeRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("products[%d]: %w", i, err))
			continue
		}
		products = append(products, p)
	}
	if len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}
	return products, nil
}

func decodeRecord(record map[string]any) (*model.LoanProduct, error) {
	result, err := productSchema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var p model.LoanProduct
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = FixtureID(p.Bank, p.Name)
	}
	if p.DisbursalSpeed == "" {
		p.DisbursalSpeed = model.DisbursalStandard
	}
	if p.DocsLevel == "" {
		p.DocsLevel = "standard"
	}
	return &p, nil
}
