// Package policy holds the ownership rule shared by posts, projects and
// comments: the owner or an administrator may modify, nobody else.
package policy

import (
    "fmt"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
)

// CanModify reports whether requester may update or delete a resource
// owned by ownerID.
func CanModify(requester *model.Account, ownerID uint64) error {
    if requester == nil {
        return apperr.ErrUnauthorized
    }
    if requester.ID == ownerID || requester.IsAdmin() {
        return nil
    }
    return fmt.Errorf("%w: only the owner or an administrator may modify this resource", apperr.ErrForbidden)
}

// CanView reports whether requester may read an unpublished resource.
// Published resources are public and never reach this check.
func CanView(requester *model.Account, ownerID uint64) bool {
    return requester != nil && (requester.ID == ownerID || requester.IsAdmin())
}
