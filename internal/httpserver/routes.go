package httpserver

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleViewer)
	s.mux.HandleFunc("GET /{id}", s.handleViewer)

	s.mux.HandleFunc("GET /api/snippets/{id}", s.handleGetSnippet)
	s.mux.Handle("PUT /api/snippets/{id}", s.limitWrites(s.handlePutSnippet))
	s.mux.Handle("POST /api/snippets", s.limitWrites(s.handleCreateSnippet))
}
