// Package category maps detected payments onto a user's category tree and
// onto coarse domain buckets.
package category

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// TreeProvider supplies a user's category tree. Lookups only; the tree is
// never modified here.
type TreeProvider interface {
	Tree(ctx context.Context, userID string) ([]*models.CategoryNode, error)
}

// StaticTree serves one tree to every user.
type StaticTree []*models.CategoryNode

// Tree implements TreeProvider.
func (t StaticTree) Tree(context.Context, string) ([]*models.CategoryNode, error) {
	return t, nil
}

// LoadTree reads a YAML list of root categories.
func LoadTree(path string) ([]*models.CategoryNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	tree, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("parsing categories %s: %w", path, err)
	}
	return tree, nil
}

// ParseTree decodes a YAML category tree and fills in missing parent IDs.
// Nodes without an ID get their slash-joined name path.
func ParseTree(data []byte) ([]*models.CategoryNode, error) {
	var tree []*models.CategoryNode
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	link(tree, nil, "")
	return tree, nil
}

func link(nodes []*models.CategoryNode, parent *models.CategoryNode, prefix string) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		path := prefix + strings.ToLower(strings.TrimSpace(n.Name))
		if n.ID == "" {
			n.ID = path
		}
		if parent != nil && n.ParentID == "" {
			n.ParentID = parent.ID
		}
		link(n.Children, n, path+"/")
	}
}

// ResolvePath walks the tree matching one name per level, case-insensitively,
// and returns the node at the end of path.
func ResolvePath(tree []*models.CategoryNode, path []string) (*models.CategoryNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	level := tree
	var node *models.CategoryNode
	for _, name := range path {
		node = find(level, name)
		if node == nil {
			return nil, false
		}
		level = node.Children
	}
	return node, true
}

// Resolve maps a rule's category onto the tree. The subcategory path is
// tried first; failing that the top-level node named root is used, or its
// first child when it has children. It reports false when nothing matches.
func Resolve(tree []*models.CategoryNode, root string, path []string) (*models.CategoryNode, bool) {
	if node, ok := ResolvePath(tree, path); ok {
		return node, true
	}
	node := find(tree, root)
	if node == nil {
		return nil, false
	}
	for _, child := range node.Children {
		if child != nil {
			return child, true
		}
	}
	return node, true
}

// RulePath is the subcategory name-path for rule: its explicit path, or
// category then subcategory when only those are set.
func RulePath(rule models.DetectionRule) []string {
	if len(rule.SubcategoryPath) > 0 {
		return rule.SubcategoryPath
	}
	if rule.Subcategory != "" && rule.Category != "" {
		return []string{rule.Category, rule.Subcategory}
	}
	return nil
}

func find(nodes []*models.CategoryNode, name string) *models.CategoryNode {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, n := range nodes {
		if n != nil && strings.EqualFold(strings.TrimSpace(n.Name), name) {
			return n
		}
	}
	return nil
}
