package cache

import "fmt"

func TokenKey(profile string) string {
	return fmt.Sprintf("clarus:token:%s", profile)
}
