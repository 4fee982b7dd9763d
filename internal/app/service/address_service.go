package service

import (
	"errors"
	"strings"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressInput struct {
	Label      string
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

type AddressService interface {
	GetUserAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefaultAddress(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func (s *addressService) GetUserAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// CreateAddress stores a new address. The first address of a user always
// becomes the default.
func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	count, err := s.addressRepo.CountByUserID(userID)
	if err != nil {
		logger.Error("Failed to count user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	address := &model.Address{UserID: userID}
	applyAddressInput(address, input)
	makeDefault := input.IsDefault || count == 0
	address.IsDefault = false

	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if makeDefault {
		if err := s.addressRepo.SetDefault(userID, address.ID); err != nil {
			logger.Error("Failed to set default address", err, map[string]interface{}{
				"user_id":    userID,
				"address_id": address.ID,
			})
			return nil, err
		}
		address.IsDefault = true
	}

	logger.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
		"is_default": address.IsDefault,
	})
	return address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	address, err := s.find(userID, addressID)
	if err != nil {
		return nil, err
	}

	wasDefault := address.IsDefault
	applyAddressInput(address, input)
	// Default changes go through SetDefault so only one address holds the flag.
	address.IsDefault = wasDefault

	if err := s.addressRepo.Update(address); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}

	if input.IsDefault && !wasDefault {
		if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
			return nil, err
		}
		address.IsDefault = true
	}
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if err := s.addressRepo.Delete(addressID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Address not found for deletion", map[string]interface{}{
				"user_id":    userID,
				"address_id": addressID,
			})
			return ErrAddressNotFound
		}
		logger.Error("Failed to delete address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return err
	}

	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) SetDefaultAddress(userID, addressID uint) error {
	if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		logger.Error("Failed to set default address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return err
	}
	return nil
}

func (s *addressService) find(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByIDAndUserID(addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return address, nil
}

func applyAddressInput(address *model.Address, input AddressInput) {
	address.Label = strings.TrimSpace(input.Label)
	address.FullName = strings.TrimSpace(input.FullName)
	address.Phone = strings.TrimSpace(input.Phone)
	address.Line1 = strings.TrimSpace(input.Line1)
	address.Line2 = strings.TrimSpace(input.Line2)
	address.City = strings.TrimSpace(input.City)
	address.State = strings.TrimSpace(input.State)
	address.PostalCode = strings.TrimSpace(input.PostalCode)
	address.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	if address.Country == "" {
		address.Country = "IN"
	}
}
