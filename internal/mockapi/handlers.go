package mockapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	return id, err == nil
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// login accepts the OAuth2 password form, or JSON, and matches username or email
func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []string{"body", "username"}, "msg": "field required", "type": "value_error.missing"},
			{"loc": []string{"body", "password"}, "msg": "field required", "type": "value_error.missing"},
		}})
		return
	}

	s.mu.RLock()
	idx := slices.IndexFunc(s.users, func(u user) bool {
		return (u.Username == form.Username || u.Email == form.Username) && u.password == form.Password
	})
	var u user
	if idx >= 0 {
		u = s.users[idx]
	}
	s.mu.RUnlock()

	if idx < 0 {
		abort(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		abort(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		abort(c, http.StatusBadRequest, "username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == req.Username {
			abort(c, http.StatusBadRequest, "Username already registered")
			return
		}
		if req.Email != "" && u.Email == req.Email {
			abort(c, http.StatusBadRequest, "Email already registered")
			return
		}
	}

	u := user{
		ID:        len(s.users) + 1,
		Username:  req.Username,
		Email:     req.Email,
		Role:      "user",
		Status:    "active",
		CreatedAt: s.clock().UTC().Format("2006-01-02T15:04:05Z"),
		password:  req.Password,
	}
	s.users = append(s.users, u)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": u, "message": "registered"})
}

func (s *Server) me(c *gin.Context) {
	id := userID(c)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			c.JSON(http.StatusOK, u)
			return
		}
	}
	abort(c, http.StatusUnauthorized, "User not found")
}

// filtered copies the careers matching keep, applying ?sort
func (s *Server) filtered(c *gin.Context, keep func(career) bool) []career {
	s.mu.RLock()
	var out []career
	for _, cr := range s.careers {
		if keep(cr) {
			out = append(out, cr)
		}
	}
	s.mu.RUnlock()
	sortCareers(out, c.Query("sort"))
	return out
}

// listCareers answers with the {"items", "total"} envelope
func (s *Server) listCareers(c *gin.Context) {
	all := s.filtered(c, func(career) bool { return true })
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"items": window(all, skip, limit), "total": len(all)})
}

// searchCareers answers with the {"results", "count"} envelope
func (s *Server) searchCareers(c *gin.Context) {
	keyword := strings.ToLower(strings.TrimSpace(c.DefaultQuery("keyword", c.Query("q"))))
	found := s.filtered(c, func(cr career) bool {
		return keyword != "" &&
			(strings.Contains(strings.ToLower(cr.Title), keyword) || strings.Contains(strings.ToLower(cr.Description), keyword))
	})
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"results": window(found, skip, limit), "count": len(found)})
}

// careersBySkills answers with the {"careers", "total"} envelope
func (s *Server) careersBySkills(c *gin.Context) {
	wanted := map[string]struct{}{}
	for _, sk := range strings.Split(c.Query("skills"), ",") {
		if sk = strings.ToLower(strings.TrimSpace(sk)); sk != "" {
			wanted[sk] = struct{}{}
		}
	}
	found := s.filtered(c, func(cr career) bool {
		for _, sk := range cr.Skills {
			if _, ok := wanted[strings.ToLower(sk)]; ok {
				return true
			}
		}
		return false
	})
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"careers": window(found, skip, limit), "total": len(found)})
}

// categoryCareers answers with the {"data", "total"} envelope
func (s *Server) categoryCareers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		abort(c, http.StatusNotFound, "Category not found")
		return
	}

	ids := map[int]struct{}{id: {}}
	if queryBool(c, "include_subcategories") {
		s.mu.RLock()
		ids = s.descendants(id)
		s.mu.RUnlock()
	}
	found := s.filtered(c, func(cr career) bool {
		_, ok := ids[cr.CategoryID]
		return ok
	})
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"data": window(found, skip, limit), "total": len(found)})
}

func (s *Server) careerDetail(c *gin.Context) {
	id, ok := pathID(c)
	if ok {
		s.mu.RLock()
		idx := slices.IndexFunc(s.careers, func(cr career) bool { return cr.ID == id })
		var cr career
		if idx >= 0 {
			cr = s.careers[idx]
		}
		s.mu.RUnlock()
		if idx >= 0 {
			c.JSON(http.StatusOK, gin.H{"data": cr})
			return
		}
	}
	abort(c, http.StatusNotFound, "Career not found")
}

// recommendations scores careers by how many skills they share with the
// user's favorites
func (s *Server) recommendations(c *gin.Context) {
	uid := userID(c)
	if v := queryInt(c, "user_id", 0); v > 0 {
		uid = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	liked := map[string]int{}
	favs := s.favorites[uid]
	for _, cr := range s.careers {
		if _, ok := favs[cr.ID]; !ok {
			continue
		}
		for _, sk := range cr.Skills {
			liked[strings.ToLower(sk)]++
		}
	}

	type scored struct {
		career
		Match float64 `json:"match_degree"`
	}
	var recs []scored
	for _, cr := range s.careers {
		if _, ok := favs[cr.ID]; ok {
			continue
		}
		shared := 0
		for _, sk := range cr.Skills {
			if liked[strings.ToLower(sk)] > 0 {
				shared++
			}
		}
		if len(liked) > 0 && shared == 0 {
			continue
		}
		match := 0.5
		if len(cr.Skills) > 0 && len(liked) > 0 {
			match = float64(shared) / float64(len(cr.Skills))
		}
		recs = append(recs, scored{career: cr, Match: match})
	}
	slices.SortStableFunc(recs, func(a, b scored) int { return cmpFloat(b.Match, a.Match) })
	if len(recs) > 5 {
		recs = recs[:5]
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"recommendations": recs,
		"total_match":     len(recs),
		"timestamp":       s.clock().UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// listFavorites answers with a bare array
func (s *Server) listFavorites(c *gin.Context) {
	uid := userID(c)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []career{}
	for _, cr := range s.careers {
		if _, ok := s.favorites[uid][cr.ID]; ok {
			out = append(out, cr)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) favoriteTarget(c *gin.Context) (uid, careerID int, ok bool) {
	careerID, ok = pathID(c)
	if ok {
		s.mu.RLock()
		ok = slices.ContainsFunc(s.careers, func(cr career) bool { return cr.ID == careerID })
		s.mu.RUnlock()
	}
	if !ok {
		abort(c, http.StatusNotFound, "Career not found")
		return 0, 0, false
	}
	return userID(c), careerID, true
}

func (s *Server) addFavorite(c *gin.Context) {
	uid, id, ok := s.favoriteTarget(c)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.favorites[uid] == nil {
		s.favorites[uid] = make(map[int]struct{})
	}
	s.favorites[uid][id] = struct{}{}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Career added to favorites"})
}

func (s *Server) removeFavorite(c *gin.Context) {
	uid, id, ok := s.favoriteTarget(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.favorites[uid], id)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Career removed from favorites"})
}

// isFavorite answers {"is_favorite": bool}
func (s *Server) isFavorite(c *gin.Context) {
	uid, id, ok := s.favoriteTarget(c)
	if !ok {
		return
	}
	s.mu.RLock()
	_, fav := s.favorites[uid][id]
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"is_favorite": fav})
}

// listCategories answers with a bare array
func (s *Server) listCategories(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cats []category
	if queryBool(c, "include_children") {
		for _, root := range s.tree(1) {
			cats = append(cats, root)
			cats = append(cats, root.Children...)
		}
	} else {
		cats = slices.Clone(s.categories)
	}
	skip, limit := page(c)
	c.JSON(http.StatusOK, window(cats, skip, limit))
}

// rootCategories answers with the {"data"} envelope
func (s *Server) rootCategories(c *gin.Context) {
	depth := 0
	switch {
	case queryBool(c, "include_all_children"):
		depth = -1
	case queryBool(c, "include_children"):
		depth = 1
	}
	s.mu.RLock()
	roots := s.tree(depth)
	s.mu.RUnlock()
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"data": window(roots, skip, limit)})
}

func (s *Server) categoryTree(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"data": s.tree(-1)})
}

func (s *Server) categoryDetail(c *gin.Context) {
	id, ok := pathID(c)
	if ok {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, cat := range s.categories {
			if cat.ID == id {
				c.JSON(http.StatusOK, cat)
				return
			}
		}
	}
	abort(c, http.StatusNotFound, "Category not found")
}

// subcategories answers with the {"items", "total"} envelope
func (s *Server) subcategories(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		abort(c, http.StatusNotFound, "Category not found")
		return
	}
	s.mu.RLock()
	var children []category
	for _, cat := range s.categories {
		if cat.ParentID != nil && *cat.ParentID == id {
			children = append(children, cat)
		}
	}
	s.mu.RUnlock()
	skip, limit := page(c)
	c.JSON(http.StatusOK, gin.H{"items": window(children, skip, limit), "total": len(children)})
}
