package magicpages

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DebugTypes writes every discovered type with its capability checklist,
// accessors and subscriptions.
func DebugTypes(w io.Writer, mp *MagicPages) {
	if !mp.Enabled() {
		fmt.Fprintln(w, "❌ Magic pages are disabled")
		return
	}
	types := mp.Registry().Types()
	fmt.Fprintf(w, "🔍 %d magic page types\n", len(types))
	for _, info := range types {
		fmt.Fprintf(w, "\n📄 %s (template: %s)\n", info.TypeName, info.Template)
		for _, c := range AllCapabilities() {
			status := "❌"
			if info.Capabilities.Has(c) {
				status = "✅"
			}
			fmt.Fprintf(w, "   %s %s\n", status, c)
		}
		for short, field := range sortedAccessors(mp, info) {
			fmt.Fprintf(w, "   🔧 %s() -> %s\n", short, field)
		}
		for _, s := range mp.Binder().Subscriptions() {
			if s.Type == info.Type {
				fmt.Fprintf(w, "   🪝 %s -> %s\n", s.Hook, s.CapabilityName)
			}
		}
	}
}

// sortedAccessors yields a type's accessors ordered by short name.
func sortedAccessors(mp *MagicPages, info TypeInfo) func(func(string, string) bool) {
	accessors := mp.Fields().Accessors(info.Type)
	names := mp.Fields().AccessorNames(info.Type)
	return func(yield func(string, string) bool) {
		for _, n := range names {
			if !yield(n, accessors[n]) {
				return
			}
		}
	}
}

type typeView struct {
	TypeInfo
	Path      string            `json:"path,omitempty"`
	Accessors map[string]string `json:"accessors"`
}

func viewOf(mp *MagicPages, info TypeInfo) typeView {
	return typeView{
		TypeInfo:  info,
		Path:      mp.Paths().Paths()[info.Template],
		Accessors: mp.Fields().Accessors(info.Type),
	}
}

// DebugHandler serves the introspection data as JSON:
//
//	GET /types               discovered types with capabilities and accessors
//	GET /types/{template}    one type
//	GET /subscriptions       capability subscriptions
//	GET /hooks               every hook on the bus
//	GET /methods             every hook method
//	GET /watched             source files watched for migrations
func DebugHandler(mp *MagicPages) http.Handler {
	r := chi.NewRouter()
	r.Get("/types", func(w http.ResponseWriter, _ *http.Request) {
		views := make([]typeView, 0)
		for _, info := range mp.Registry().Types() {
			views = append(views, viewOf(mp, info))
		}
		writeJSON(w, http.StatusOK, views)
	})
	r.Get("/types/{template}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "template")
		for _, info := range mp.Registry().Types() {
			if info.Template == name {
				writeJSON(w, http.StatusOK, viewOf(mp, info))
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown template " + name})
	})
	r.Get("/subscriptions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mp.Binder().Subscriptions())
	})
	r.Get("/hooks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mp.Store().Env().Hooks.Hooks())
	})
	r.Get("/methods", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mp.Store().Env().Methods.List())
	})
	r.Get("/watched", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mp.Migrations().Watched())
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
