package api

import (
	"net/http"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func (s *Server) handleList(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := tbl.List()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(records))
	}
}

func (s *Server) handleGet(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := tbl.Get(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleCreate(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := tbl.Create(body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) handleUpdate(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := decodeBody(w, r, &fields); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := tbl.Update(r.PathValue("id"), fields)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleDelete(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := tbl.Delete(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !ok {
			writeMessage(w, http.StatusNotFound, tbl.Name()+" "+r.PathValue("id")+": "+types.ErrNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) handleStatistics(tbl types.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := tbl.Statistics()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
