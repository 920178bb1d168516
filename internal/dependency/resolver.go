// Package dependency expands package relations into a dependency closure over a
// scanned catalog, and classifies installed packages for upgrades.
package dependency

import (
	"fmt"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/repository"
	"github.com/ralt/debcube/internal/version"
	"github.com/sirupsen/logrus"
)

// Warning describes a relation that could not be satisfied. The relation is left out
// of the closure and resolution carries on.
type Warning struct {
	Type    models.ErrorType
	Package string // package whose relations were being resolved
	Item    string // the relation as written
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s (%s)", w.Type, w.Package, w.Item, w.Message)
}

// Closure is the result of resolving one package
type Closure struct {
	Root     *models.Package
	Packages map[string]*models.Package
	Order    []string // package names in discovery order, root first
	Warnings []Warning
}

// Resolver resolves relations against a catalog. It keeps no state between calls;
// the catalog must not be modified while a resolution is running.
type Resolver struct {
	catalog *repository.Catalog
}

// NewResolver creates a resolver over cat
func NewResolver(cat *repository.Catalog) *Resolver {
	return &Resolver{catalog: cat}
}

type state struct {
	acc      map[string]*models.Package
	order    []string
	warnings []Warning
}

func (s *state) add(pkg *models.Package) {
	s.acc[pkg.Name] = pkg
	s.order = append(s.order, pkg.Name)
}

func (s *state) warn(t models.ErrorType, pkg, item, format string, args ...interface{}) {
	w := Warning{Type: t, Package: pkg, Item: item, Message: fmt.Sprintf(format, args...)}
	logrus.Debug(w.String())
	s.warnings = append(s.warnings, w)
}

// ResolveName resolves the available package called name
func (r *Resolver) ResolveName(name string) (*Closure, error) {
	pkg, ok := r.catalog.Available[name]
	if !ok {
		return nil, fmt.Errorf("package %s is not available", name)
	}
	return r.Resolve(pkg), nil
}

// Resolve computes the closure of pkg, including pkg itself
func (r *Resolver) Resolve(pkg *models.Package) *Closure {
	st := &state{acc: make(map[string]*models.Package)}
	st.add(pkg)
	r.getDependencies(pkg, st)

	return &Closure{
		Root:     pkg,
		Packages: st.acc,
		Order:    st.order,
		Warnings: st.warnings,
	}
}

// GetDependencies adds every package pkg needs to acc, depth first. Packages
// already in acc are not expanded again. A package without relations adds itself.
func (r *Resolver) GetDependencies(pkg *models.Package, acc map[string]*models.Package) []Warning {
	st := &state{acc: acc}
	r.getDependencies(pkg, st)
	return st.warnings
}

// GetDependencyOne settles a single relation, see getDependencyOne
func (r *Resolver) GetDependencyOne(item models.DependencyItem, acc map[string]*models.Package) (bool, []Warning) {
	st := &state{acc: acc}
	ok := r.getDependencyOne(item, "", st)
	return ok, st.warnings
}

func (r *Resolver) getDependencies(pkg *models.Package, st *state) {
	info, err := pkg.Info(RelationFields...)
	if err != nil {
		st.warn(models.ErrFieldLookup, pkg.Name, "", "failed to read relations: %v", err)
		return
	}

	deps := relationString(info)
	if strings.TrimSpace(deps) == "" {
		if _, ok := st.acc[pkg.Name]; !ok {
			st.add(pkg)
		}
		return
	}

	group := ParseGroup(deps)
	required := append([]models.DependencyItem(nil), group.And...)

	for _, alternatives := range group.Or {
		item, ok := r.chooseAlternative(alternatives, st.acc)
		if !ok {
			st.warn(models.ErrUnsatisfiedOr, pkg.Name, joinAlternatives(alternatives), "no alternative is available")
			continue
		}
		required = append(required, item)
	}

	for _, item := range required {
		if _, ok := r.catalog.Available[item.Name]; !ok {
			provider := r.GetProvider(item)
			if provider == nil {
				st.warn(models.ErrUnsatisfiedAnd, pkg.Name, item.String(), "package not found")
				continue
			}
			item = models.DependencyItem{Name: provider.Name}
		}
		r.getDependencyOne(item, pkg.Name, st)
	}
}

// chooseAlternative picks one alternative of an OR clause. An available package that
// is not installed, or one already in the closure, wins right away. Otherwise the
// first alternative reachable through a provider is used, then the first available one.
func (r *Resolver) chooseAlternative(alternatives []models.DependencyItem, acc map[string]*models.Package) (models.DependencyItem, bool) {
	var provided, available *models.DependencyItem

	for i := range alternatives {
		alt := alternatives[i]

		if pkg, ok := r.catalog.Available[alt.Name]; ok {
			if _, inClosure := acc[pkg.Name]; pkg.Status == models.StatusAvailable || inClosure {
				return alt, true
			}
			if available == nil {
				available = &alt
			}
			continue
		}

		if provided == nil {
			if provider := r.GetProvider(alt); provider != nil {
				provided = &models.DependencyItem{Name: provider.Name}
			}
		}
	}

	switch {
	case provided != nil:
		return *provided, true
	case available != nil:
		return *available, true
	default:
		return models.DependencyItem{}, false
	}
}

// getDependencyOne settles an available relation. An installed package with a
// satisfying installed version needs nothing. Otherwise a satisfying available
// version joins the closure and is expanded in turn.
func (r *Resolver) getDependencyOne(item models.DependencyItem, requester string, st *state) bool {
	pkg, ok := r.catalog.Available[item.Name]
	if !ok {
		st.warn(models.ErrUnsatisfiedAnd, requester, item.String(), "package not found")
		return false
	}

	if pkg.Status == models.StatusInstalled && version.Satisfies(pkg.InstalledVersion, item) {
		return true
	}

	if !version.Satisfies(pkg.Version, item) {
		st.warn(models.ErrUnsatisfiedAnd, requester, item.String(), "available version %s does not satisfy it", pkg.Version)
		return false
	}

	if _, ok := st.acc[pkg.Name]; !ok {
		st.add(pkg)
		r.getDependencies(pkg, st)
	}
	return true
}

// GetProvider returns a provider of the virtual package item.Name. Providers that are
// not installed are preferred, then the first registered provider still available.
func (r *Resolver) GetProvider(item models.DependencyItem) *models.Package {
	var first *models.Package

	for _, name := range r.catalog.Providers(item.Name) {
		pkg, ok := r.catalog.Available[name]
		if !ok {
			continue
		}
		if pkg.Status == models.StatusAvailable {
			return pkg
		}
		if first == nil {
			first = pkg
		}
	}

	return first
}

func joinAlternatives(items []models.DependencyItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " | ")
}
