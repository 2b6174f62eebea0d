package scraper

// Reddit DOM selectors
// These are isolated here because Reddit changes their DOM frequently
// Update these when scraping breaks

const (
	// Search page selectors
	SearchResults   = `[data-testid="search-post-unit"], shreddit-post, a[data-testid="post-title"]`
	SearchPostTitle = `a[data-testid="post-title"]`

	// Post page selectors
	PostElement = `shreddit-post`
	PostTitle   = `h1[slot="title"]`
	PostBody    = `[slot="text-body"]`

	// Comment selectors
	CommentElement = `shreddit-comment`
	CommentBody    = `div[slot="comment"]`
	CommentTime    = `faceplate-timeago`

	// Composer selectors
	ComposerTrigger  = `comment-composer-host faceplate-textarea-input, [data-testid="trigger-button"]`
	ComposerEditable = `shreddit-composer div[contenteditable="true"], div[contenteditable="true"][role="textbox"]`
	ComposerSubmit   = `shreddit-composer button[slot="submit-button"], button[type="submit"][slot="submit-button"]`

	// Login state indicators
	LoggedOutIndicator = `#login-button, a[href*="/login"]`
	UserMenu           = `#expand-user-drawer-button`
)

// replyTargetAttr marks the comment chosen for a reply so later selectors can find it
const replyTargetAttr = "data-leadscout-target"

// Common wait conditions
const (
	WaitForSearch = `body`
	WaitForPost   = PostElement
)
