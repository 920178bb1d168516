package dependency

import (
	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/repository"
	"github.com/ralt/debcube/internal/version"
	"github.com/sirupsen/logrus"
)

// MarkPackages classifies every installed package that is also available.
// A newer available version makes it upgradable; an equal or older one leaves it
// installed, downgrades are never proposed. With reset, previous classification
// and reverse edges are cleared first. Packages are visited in status file order,
// which is also the order of the returned upgradable names.
func MarkPackages(cat *repository.Catalog, reset bool) []string {
	if reset {
		for _, pkg := range cat.Available {
			pkg.Status = models.StatusAvailable
			pkg.InstalledVersion = ""
			pkg.ReverseDepends = nil
		}
	}

	cat.Upgradable = nil

	for _, name := range cat.InstalledOrder {
		installed := cat.Installed[name]
		available, ok := cat.Available[name]
		if !ok {
			continue
		}

		available.InstalledVersion = installed.Version

		if version.Compare(available.Version, installed.Version) > 0 {
			available.Status = models.StatusUpgradable
			installed.Status = models.StatusUpgradable
			cat.Upgradable = append(cat.Upgradable, name)
		} else {
			available.Status = models.StatusInstalled
			installed.Status = models.StatusInstalled
		}
	}

	logrus.Infof("%d upgradable packages", len(cat.Upgradable))

	SetReverseDependencies(cat)
	return cat.Upgradable
}

// SetReverseDependencies records, on each available dependency of an upgradable
// package, which package requires it. Only one edge is kept per dependency name:
// the last upgradable package in status file order wins.
func SetReverseDependencies(cat *repository.Catalog) {
	if len(cat.Upgradable) == 0 {
		return
	}

	for _, name := range cat.Upgradable {
		pkg := cat.Available[name]

		info, err := pkg.Info(RelationFields...)
		if err != nil {
			logrus.Warnf("Failed to read relations of %s: %v", name, err)
			continue
		}

		deps := relationString(info)
		if deps == "" {
			continue
		}

		for _, item := range ParseGroup(deps).And {
			dep, ok := cat.Available[item.Name]
			if !ok {
				continue
			}
			if dep.ReverseDepends == nil {
				dep.ReverseDepends = make(map[string]models.ReverseEdge)
			}
			dep.ReverseDepends[item.Name] = models.ReverseEdge{Requester: pkg.Name, Item: item}
		}
	}
}
