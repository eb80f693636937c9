package entity

// Roles understood by the authorization contract.
const (
	RoleMaster   = "master"
	RoleGerente  = "gerente"
	RoleVendedor = "vendedor"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // In production, you'd store hashed passwords.
	Role     string `json:"role"`
}

/*
MySQL schema:
CREATE DATABASE padaria;
USE padaria;

CREATE TABLE users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(50) NOT NULL,
	password VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL
);

CREATE UNIQUE INDEX username_idx ON users(username);
*/
