package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

type CreatePostPayload struct {
	Category string   `json:"category" validate:"required,oneof='연주자 구함' '연주 구함' '잡담'"`
	Title    string   `json:"title" validate:"required,max=100"`
	Content  string   `json:"content" validate:"required,max=2000"`
	Images   []string `json:"images" validate:"omitempty,dive,url"`
}

// createPostHandler godoc
//
//	@Summary		Create a feed post
//	@Description	Creates a community post; the author's name, photo and instruments are snapshotted at write time
//	@Tags			feed
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreatePostPayload	true	"Post data"
//	@Success		201		{object}	store.Post
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/feed [post]
func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePostPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	post := &store.Post{
		Category:    payload.Category,
		Title:       payload.Title,
		Content:     payload.Content,
		Images:      payload.Images,
		AuthorID:    user.ID,
		AuthorName:  user.Name,
		AuthorPhoto: user.PhotoURL,
	}

	// The author's instruments ride along on the post card when they have a
	// musician profile.
	if musician, err := app.store.Musicians.GetByOwner(r.Context(), user.ID); err == nil {
		post.Instruments = musician.Instruments
	}

	if err := app.store.Feed.CreatePost(r.Context(), post); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, post); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listPostsHandler godoc
//
//	@Summary		List feed posts
//	@Description	Lists posts, optionally filtered by search text and sorted by "recent" or "popular"
//	@Tags			feed
//	@Produce		json
//	@Param			search	query		string	false	"Search text"
//	@Param			sort	query		string	false	"recent | popular"
//	@Success		200		{array}		store.Post
//	@Router			/feed [get]
func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	sort := r.URL.Query().Get("sort")

	posts, err := app.store.Feed.ListPosts(r.Context(), search, sort)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, posts); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPostHandler godoc
//
//	@Summary		Get a feed post
//	@Tags			feed
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	store.Post
//	@Failure		404		{object}	error
//	@Router			/feed/{postID} [get]
func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	post, err := app.store.Feed.GetPost(r.Context(), postID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, post); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addPostViewHandler godoc
//
//	@Summary		Record a post view
//	@Description	Counts each viewer once per post
//	@Tags			feed
//	@Produce		json
//	@Param			postID	path	int	true	"Post ID"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/feed/{postID}/view [post]
func (app *application) addPostViewHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Feed.AddView(r.Context(), postID, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// likePostHandler godoc
//
//	@Summary		Like a post
//	@Description	Idempotent; liking twice counts once
//	@Tags			feed
//	@Produce		json
//	@Param			postID	path	int	true	"Post ID"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/feed/{postID}/like [put]
func (app *application) likePostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Feed.Like(r.Context(), postID, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// unlikePostHandler godoc
//
//	@Summary		Remove a like
//	@Tags			feed
//	@Produce		json
//	@Param			postID	path	int	true	"Post ID"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/feed/{postID}/like [delete]
func (app *application) unlikePostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Feed.Unlike(r.Context(), postID, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type CreateCommentPayload struct {
	Content string `json:"content" validate:"required,max=500"`
}

// createCommentHandler godoc
//
//	@Summary		Comment on a post
//	@Tags			feed
//	@Accept			json
//	@Produce		json
//	@Param			postID	path		int						true	"Post ID"
//	@Param			payload	body		CreateCommentPayload	true	"Comment"
//	@Success		201		{object}	store.Comment
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/feed/{postID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	var payload CreateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	comment := &store.Comment{
		PostID:   postID,
		AuthorID: user.ID,
		Content:  payload.Content,
	}

	if err := app.store.Feed.CreateComment(r.Context(), comment); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listCommentsHandler godoc
//
//	@Summary		List post comments
//	@Tags			feed
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{array}		store.Comment
//	@Router			/feed/{postID}/comments [get]
func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid post ID"))
		return
	}

	comments, err := app.store.Feed.ListComments(r.Context(), postID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, comments); err != nil {
		app.internalServerError(w, r, err)
	}
}
