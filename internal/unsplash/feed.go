package unsplash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"unsplash-cli/internal/api"
)

const (
	DefaultScheme = "https"
	DefaultHost   = "api.unsplash.com"
)

// OrderBy is the server-side sort key of the photo feed.
type OrderBy string

const (
	OrderLatest  OrderBy = "latest"
	OrderPopular OrderBy = "popular"
)

// FeedConfig configures a FeedClient.
type FeedConfig struct {
	PageSize int
	OrderBy  OrderBy

	// APIEndpoint overrides the Unsplash API base URL. Set only in tests.
	APIEndpoint string
}

// FeedClient maintains the photo feed: an append-only, in-memory sequence of
// photos fetched page by page.
//
// Pages are fetched strictly sequentially: FetchNextPage while a fetch is
// outstanding is a no-op, and a failed fetch leaves the page counter alone so
// the next call re-requests the same page. Nothing here retries on its own.
type FeedClient struct {
	http   *api.Client
	scheme string
	host   string

	pageSize int
	orderBy  OrderBy
	log      *logrus.Entry

	mu        sync.Mutex
	fetching  bool
	page      int
	photos    []Photo
	seen      map[string]struct{}
	likeRev   map[string]uint64
	observers []func(added int)
}

func NewFeedClient(httpClient *api.Client, conf FeedConfig) *FeedClient {
	scheme, host := DefaultScheme, DefaultHost
	if conf.APIEndpoint != "" {
		u, err := url.Parse(conf.APIEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			panic(fmt.Sprintf("unsplash: malformed API endpoint %q", conf.APIEndpoint))
		}
		scheme, host = u.Scheme, u.Host
	}
	orderBy := conf.OrderBy
	if orderBy == "" {
		orderBy = OrderLatest
	}
	pageSize := conf.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &FeedClient{
		http:     httpClient,
		scheme:   scheme,
		host:     host,
		pageSize: pageSize,
		orderBy:  orderBy,
		log:      logrus.WithField("component", "feed"),
		seen:     make(map[string]struct{}),
		likeRev:  make(map[string]uint64),
	}
}

// Photos returns a snapshot of the feed.
func (f *FeedClient) Photos() []Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Photo, len(f.photos))
	copy(out, f.photos)
	return out
}

// Page returns the number of the last successfully fetched page, 0 before the
// first fetch.
func (f *FeedClient) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// OnFeedChanged registers fn to be called with the number of newly appended
// photos after every successful page fetch. Observers can derive the affected
// index range as [len(feed)-added, len(feed)).
func (f *FeedClient) OnFeedChanged(fn func(added int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

// FetchNextPage requests the page after the last successful one and appends
// its photos to the feed. A call while another fetch is in flight returns
// immediately without doing anything.
func (f *FeedClient) FetchNextPage(ctx context.Context) error {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		f.log.Debug("page fetch already in flight, ignoring")
		return nil
	}
	f.fetching = true
	next := f.page + 1
	f.mu.Unlock()

	query := url.Values{}
	query.Set("page", strconv.Itoa(next))
	query.Set("per_page", strconv.Itoa(f.pageSize))
	query.Set("order_by", string(f.orderBy))
	req := api.Build(http.MethodGet, f.scheme, f.host, "/photos", query)

	var results []photoResult
	err := f.http.DoJSON(ctx, req, &results)

	f.mu.Lock()
	f.fetching = false
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("failed to fetch page %d: %w", next, err)
	}

	// Keep-first on duplicate ids: observers index into the feed by
	// position, so an already-present photo must not move.
	added := 0
	for _, r := range results {
		if _, dup := f.seen[r.ID]; dup {
			continue
		}
		f.seen[r.ID] = struct{}{}
		f.photos = append(f.photos, r.toPhoto())
		added++
	}
	f.page = next
	observers := make([]func(added int), len(f.observers))
	copy(observers, f.observers)
	f.mu.Unlock()

	f.log.WithFields(logrus.Fields{"page": next, "added": added}).Debug("page appended")
	for _, fn := range observers {
		fn(added)
	}
	return nil
}

// ToggleLike likes the photo when currentlyLiked is false and unlikes it
// otherwise. The feed entry only changes after the server confirms; a failed
// call leaves it untouched. When toggles for the same photo overlap, only the
// newest one is allowed to apply its response.
func (f *FeedClient) ToggleLike(ctx context.Context, photoID string, currentlyLiked bool) error {
	f.mu.Lock()
	f.likeRev[photoID]++
	rev := f.likeRev[photoID]
	f.mu.Unlock()

	method := http.MethodPost
	if currentlyLiked {
		method = http.MethodDelete
	}
	req := api.Build(method, f.scheme, f.host, "/photos/"+photoID+"/like", nil)

	var result likeResult
	if err := f.http.DoJSON(ctx, req, &result); err != nil {
		return fmt.Errorf("failed to toggle like for photo %s: %w", photoID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.likeRev[photoID] != rev {
		f.log.WithField("photo", photoID).Debug("stale like response discarded")
		return nil
	}
	for i := range f.photos {
		if f.photos[i].ID == photoID {
			f.photos[i].LikedByMe = result.Photo.LikedByUser
			break
		}
	}
	return nil
}

// Reset drops the feed and the page counter, e.g. on logout.
func (f *FeedClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = nil
	f.page = 0
	f.seen = make(map[string]struct{})
	f.likeRev = make(map[string]uint64)
}
