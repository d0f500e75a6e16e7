package converter

import (
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	return &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UserToProfileResponse is UserToResponse plus the permissions the role grants.
func UserToProfileResponse(user *entity.User) *dto.UserResponse {
	response := UserToResponse(user)
	if response == nil {
		return nil
	}

	perms := entity.PermissionsFor(user.Role)
	response.Permissions = make([]string, len(perms))
	for i, p := range perms {
		response.Permissions[i] = string(p)
	}
	return response
}
