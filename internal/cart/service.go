package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/identity"
	"github.com/clickmarket/clickmarket-backend/internal/products"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for both guest sessions and users.
type Service interface {
	GetOrCreate(ctx context.Context, owner identity.Identity) (CartDTO, error)
	AddItem(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (CartDTO, error)
	UpdateItem(ctx context.Context, owner identity.Identity, itemID uuid.UUID, input UpdateItemInput) (CartDTO, error)
	RemoveItem(ctx context.Context, owner identity.Identity, itemID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, owner identity.Identity) (CartDTO, error)
	MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) (MergeResultDTO, error)
}

type service struct {
	repo        Repository
	productRepo products.Repository
	tx          txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, productRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if productRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products repo is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{repo: repo, productRepo: productRepo, tx: tx}, nil
}

// GetOrCreate returns the owner's cart, creating an empty one on first use.
func (s *service) GetOrCreate(ctx context.Context, owner identity.Identity) (CartDTO, error) {
	cart, err := s.loadOrCreateCart(ctx, s.repo, owner)
	if err != nil {
		return CartDTO{}, err
	}
	return ToDTO(*cart), nil
}

// AddItem puts a product in the cart. A new line snapshots the current
// catalog price; an existing line keeps its snapshot and gets an atomic
// in-database quantity increment, so two concurrent adds both land.
func (s *service) AddItem(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (CartDTO, error) {
	if productID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cart, err := s.loadOrCreateCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		cartID = cart.ID

		product, err := productRepo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		if product.StockQuantity < quantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			if err := repo.IncrementItemQuantity(ctx, existing.ID, quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment quantity")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := &models.CartItem{
				ID:             uuid.New(),
				CartID:         cart.ID,
				ProductID:      productID,
				Quantity:       quantity,
				UnitPriceCents: product.PriceCents,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		return repo.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.reload(ctx, cartID)
}

// UpdateItem changes a line's quantity and/or product. Swapping the product
// re-snapshots the price at the new product's current rate.
func (s *service) UpdateItem(ctx context.Context, owner identity.Identity, itemID uuid.UUID, input UpdateItemInput) (CartDTO, error) {
	if itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cart, err := s.loadCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		cartID = cart.ID

		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		updates := map[string]any{}
		if input.ProductID != nil && *input.ProductID != item.ProductID {
			product, err := productRepo.FindByID(ctx, *input.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
			}
			updates["product_id"] = product.ID
			updates["unit_price_cents"] = product.PriceCents
		}
		if input.Quantity != nil {
			updates["quantity"] = *input.Quantity
		}

		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return repo.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.reload(ctx, cartID)
}

// RemoveItem deletes a single line from the cart.
func (s *service) RemoveItem(ctx context.Context, owner identity.Identity, itemID uuid.UUID) (CartDTO, error) {
	if itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		cartID = cart.ID

		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return repo.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.reload(ctx, cartID)
}

// Clear removes every line but keeps the cart row.
func (s *service) Clear(ctx context.Context, owner identity.Identity) (CartDTO, error) {
	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreateCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		cartID = cart.ID

		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return repo.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.reload(ctx, cartID)
}

// MergeOnLogin folds the guest cart identified by sessionID into the user's
// cart: quantities for shared products add up, the user's price snapshot
// wins, guest-only lines move over with their snapshot. The guest cart is
// re-checked inside the transaction before deletion, so a second call with
// an already-consumed session id degrades to a plain cart read.
func (s *service) MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) (MergeResultDTO, error) {
	if userID == uuid.Nil {
		return MergeResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if sessionID == "" {
		return MergeResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	userOwner, err := identity.ForUser(userID)
	if err != nil {
		return MergeResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user identity")
	}
	guestOwner, err := identity.ForSession(sessionID)
	if err != nil {
		return MergeResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session identity")
	}

	var (
		cartID uuid.UUID
		merged bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		userCart, err := s.loadOrCreateCart(ctx, repo, userOwner)
		if err != nil {
			return err
		}
		cartID = userCart.ID

		guestCart, err := repo.FindByOwner(ctx, guestOwner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Already merged, or the guest never had a cart.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
		}

		byProduct := make(map[uuid.UUID]*models.CartItem, len(userCart.Items))
		for i := range userCart.Items {
			byProduct[userCart.Items[i].ProductID] = &userCart.Items[i]
		}

		for _, guestItem := range guestCart.Items {
			if existing, ok := byProduct[guestItem.ProductID]; ok {
				// User snapshot wins; only quantities add.
				if err := repo.IncrementItemQuantity(ctx, existing.ID, guestItem.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge quantity")
				}
				continue
			}
			moved := &models.CartItem{
				ID:             uuid.New(),
				CartID:         userCart.ID,
				ProductID:      guestItem.ProductID,
				Quantity:       guestItem.Quantity,
				UnitPriceCents: guestItem.UnitPriceCents,
			}
			if err := repo.CreateItem(ctx, moved); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move guest item")
			}
		}

		if err := repo.Delete(ctx, guestCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete guest cart")
		}
		merged = true
		return repo.TouchCart(ctx, userCart.ID)
	})
	if err != nil {
		return MergeResultDTO{}, err
	}

	dto, err := s.reload(ctx, cartID)
	if err != nil {
		return MergeResultDTO{}, err
	}
	return MergeResultDTO{
		Cart:              dto,
		SessionIDToDelete: sessionID,
		Merged:            merged,
	}, nil
}

func (s *service) loadCart(ctx context.Context, repo Repository, owner identity.Identity) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing")
	}
	cart, err := repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadOrCreateCart(ctx context.Context, repo Repository, owner identity.Identity) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing")
	}
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{ID: uuid.New()}
	if userID, ok := owner.UserID(); ok {
		id := userID
		fresh.UserID = &id
	} else if sessionID, ok := owner.SessionID(); ok {
		sid := sessionID
		fresh.SessionID = &sid
	}

	created, err := repo.Create(ctx, fresh)
	if err != nil {
		// Lost a creation race; the winner's cart is the cart.
		if existing, findErr := repo.FindByOwner(ctx, owner); findErr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (CartDTO, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return ToDTO(*cart), nil
}
