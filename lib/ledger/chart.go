// Package ledger holds the chart of accounts as an arena keyed by account id
// and the double-entry rules journal transactions must satisfy.
package ledger

import (
	"sort"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/money"
)

type node struct {
	id          int64
	accountType common.AccountType
	parent      int64 // 0 for a root
	children    []int64
}

// Chart is the account tree. Nodes reference each other by id only.
type Chart struct {
	nodes map[int64]*node
}

func NewChart() *Chart {
	return &Chart{nodes: map[int64]*node{}}
}

// LoadChart builds the tree from stored accounts and rejects stored data that
// already contains a loop.
func LoadChart(accounts []*models.Account) (*Chart, error) {
	c := NewChart()
	for _, a := range accounts {
		c.nodes[a.ID] = &node{id: a.ID, accountType: a.AccountType, parent: parentOf(a.ParentAccountID)}
	}
	for _, n := range c.nodes {
		if n.parent == 0 {
			continue
		}
		if _, ok := c.nodes[n.parent]; !ok {
			return nil, &common.ReferentialIntegrityError{Entity: "account", Field: "parent_account_id", ID: n.parent}
		}
		if c.reaches(n.parent, n.id) {
			return nil, &common.CycleError{AccountID: n.id, ParentID: n.parent}
		}
	}
	for _, n := range c.nodes {
		if n.parent != 0 {
			p := c.nodes[n.parent]
			p.children = append(p.children, n.id)
		}
	}
	for _, n := range c.nodes {
		sortIDs(n.children)
	}
	return c, nil
}

func (c *Chart) Len() int {
	return len(c.nodes)
}

func (c *Chart) Contains(id int64) bool {
	_, ok := c.nodes[id]
	return ok
}

// Add places a new account under parentID, which must exist and share the
// account type.
func (c *Chart) Add(id int64, accountType common.AccountType, parentID *int64) error {
	if c.Contains(id) {
		return &common.UniquenessViolation{Entity: "account", Field: "id", Value: idString(id)}
	}
	parent := parentOf(parentID)
	if err := c.checkParentType(accountType, parent); err != nil {
		return err
	}
	c.nodes[id] = &node{id: id, accountType: accountType, parent: parent}
	if parent != 0 {
		c.attach(parent, id)
	}
	return nil
}

// CheckParent reports whether id may be moved under parentID without
// creating a loop.
func (c *Chart) CheckParent(id int64, parentID *int64) error {
	n, ok := c.nodes[id]
	if !ok {
		return common.ErrNotFound
	}
	parent := parentOf(parentID)
	if parent == 0 {
		return nil
	}
	if err := c.checkParentType(n.accountType, parent); err != nil {
		return err
	}
	if parent == id || c.reaches(parent, id) {
		return &common.CycleError{AccountID: id, ParentID: parent}
	}
	return nil
}

// Reparent moves id under parentID, or to the root when parentID is nil.
func (c *Chart) Reparent(id int64, parentID *int64) error {
	if err := c.CheckParent(id, parentID); err != nil {
		return err
	}
	n := c.nodes[id]
	if n.parent != 0 {
		c.detach(n.parent, id)
	}
	n.parent = parentOf(parentID)
	if n.parent != 0 {
		c.attach(n.parent, id)
	}
	return nil
}

// Parent returns the parent id, 0 for a root.
func (c *Chart) Parent(id int64) int64 {
	if n, ok := c.nodes[id]; ok {
		return n.parent
	}
	return 0
}

func (c *Chart) Roots() []int64 {
	var roots []int64
	for _, n := range c.nodes {
		if n.parent == 0 {
			roots = append(roots, n.id)
		}
	}
	sortIDs(roots)
	return roots
}

func (c *Chart) Children(id int64) []int64 {
	n, ok := c.nodes[id]
	if !ok {
		return nil
	}
	return append([]int64(nil), n.children...)
}

// Ancestors lists the parent chain of id, nearest first.
func (c *Chart) Ancestors(id int64) []int64 {
	var out []int64
	n, ok := c.nodes[id]
	for ok && n.parent != 0 {
		out = append(out, n.parent)
		n, ok = c.nodes[n.parent]
	}
	return out
}

// Descendants lists every account below id in depth-first order.
func (c *Chart) Descendants(id int64) []int64 {
	var out []int64
	var walk func(int64)
	walk = func(cur int64) {
		for _, child := range c.nodes[cur].children {
			out = append(out, child)
			walk(child)
		}
	}
	if c.Contains(id) {
		walk(id)
	}
	return out
}

// Rollup adds each account's own balance to every ancestor, giving the
// balance of the subtree rooted at each account.
func (c *Chart) Rollup(own map[int64]money.Amount) map[int64]money.Amount {
	out := make(map[int64]money.Amount, len(c.nodes))
	for id := range c.nodes {
		if _, ok := out[id]; !ok {
			out[id] = money.ZeroAmount()
		}
		b, ok := own[id]
		if !ok {
			continue
		}
		out[id] = out[id].Add(b)
		for _, a := range c.Ancestors(id) {
			if _, ok := out[a]; !ok {
				out[a] = money.ZeroAmount()
			}
			out[a] = out[a].Add(b)
		}
	}
	return out
}

func (c *Chart) checkParentType(accountType common.AccountType, parent int64) error {
	if parent == 0 {
		return nil
	}
	p, ok := c.nodes[parent]
	if !ok {
		return &common.ReferentialIntegrityError{Entity: "account", Field: "parent_account_id", ID: parent}
	}
	if p.accountType != accountType {
		return common.NewValidationError("parent_account_id", "account_type",
			"parent account is %s, expected %s", p.accountType, accountType)
	}
	return nil
}

// reaches reports whether walking up from start hits target. The walk is
// bounded by the arena size so corrupt data cannot loop forever.
func (c *Chart) reaches(start, target int64) bool {
	cur := start
	for steps := 0; cur != 0 && steps <= len(c.nodes); steps++ {
		if cur == target {
			return true
		}
		n, ok := c.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parent
	}
	return cur != 0
}

func (c *Chart) attach(parent, child int64) {
	p := c.nodes[parent]
	p.children = append(p.children, child)
	sortIDs(p.children)
}

func (c *Chart) detach(parent, child int64) {
	p := c.nodes[parent]
	for i, id := range p.children {
		if id == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

func parentOf(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
