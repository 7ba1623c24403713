package nuget

import (
	"encoding/json"
	"os"
	"slices"
)

// RuntimeGraphFile is the file name NuGet reads a runtime graph from.
const RuntimeGraphFile = "runtime.json"

// RuntimeGraph maps runtime identifiers to the packages a
// platform-independent package pulls in on that runtime.
type RuntimeGraph struct {
	Runtimes map[string]*RuntimeDescription
}

type RuntimeDescription struct {
	RID            string
	Inherits       []string
	DependencySets map[string]*DependencySet
}

// DependencySet lists the packages substituted for package ID on one RID.
type DependencySet struct {
	ID           string
	Dependencies []PackageDependency
}

type PackageDependency struct {
	ID           string
	VersionRange string
}

func NewRuntimeGraph() *RuntimeGraph {
	return &RuntimeGraph{Runtimes: make(map[string]*RuntimeDescription)}
}

// Add records that on rid, package setID depends on dep.
func (g *RuntimeGraph) Add(rid, setID string, dep PackageDependency) {
	rd, ok := g.Runtimes[rid]
	if !ok {
		rd = &RuntimeDescription{RID: rid, DependencySets: make(map[string]*DependencySet)}
		g.Runtimes[rid] = rd
	}
	ds, ok := rd.DependencySets[setID]
	if !ok {
		ds = &DependencySet{ID: setID}
		rd.DependencySets[setID] = ds
	}
	ds.Dependencies = append(ds.Dependencies, dep)
}

// RIDs returns the runtime identifiers in the graph, sorted.
func (g *RuntimeGraph) RIDs() []string {
	rids := make([]string, 0, len(g.Runtimes))
	for rid := range g.Runtimes {
		rids = append(rids, rid)
	}
	slices.Sort(rids)
	return rids
}

// MarshalJSON writes the runtime.json form:
//
//	{"runtimes": {"<rid>": {"#import": [...], "<set>": {"<pkg>": "<range>"}}}}
func (g *RuntimeGraph) MarshalJSON() ([]byte, error) {
	runtimes := make(map[string]map[string]any, len(g.Runtimes))
	for rid, rd := range g.Runtimes {
		entry := make(map[string]any, len(rd.DependencySets)+1)
		if len(rd.Inherits) > 0 {
			entry["#import"] = rd.Inherits
		}
		for id, ds := range rd.DependencySets {
			deps := make(map[string]string, len(ds.Dependencies))
			for _, d := range ds.Dependencies {
				deps[d.ID] = d.VersionRange
			}
			entry[id] = deps
		}
		runtimes[rid] = entry
	}
	// encoding/json sorts map keys, which keeps the output stable.
	return json.Marshal(map[string]any{"runtimes": runtimes})
}

// WriteFile writes the graph as indented JSON.
func (g *RuntimeGraph) WriteFile(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ExactRange returns the NuGet range matching only v.
func ExactRange(v string) string {
	return "[" + v + "]"
}

// BuildRuntimeGraph maps every runtime package in pkgs onto package
// project, each pinned to the exact version ver.
func BuildRuntimeGraph(project, ver string, pkgs []PackageFile) *RuntimeGraph {
	g := NewRuntimeGraph()
	for _, p := range pkgs {
		g.Add(p.RID, project, PackageDependency{
			ID:           RuntimeID(project, p.RID),
			VersionRange: ExactRange(ver),
		})
	}
	return g
}
